package duel

import "errors"

var (
	ErrUnknownCharacter = errors.New("unknown character")
	ErrUnknownLocation  = errors.New("unknown location")
	ErrSameFighter      = errors.New("a fighter cannot duel itself")
)

type InvalidContentError string

func (e InvalidContentError) Error() string { return "invalid content: " + string(e) }
