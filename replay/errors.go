package replay

import "fmt"

type ReplayError struct {
	Seq     int64  `json:"seq"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (e *ReplayError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("replay error(seq=%d reason=%s): %s", e.Seq, e.Reason, e.Message)
}
