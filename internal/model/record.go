package model

import (
	"time"
)

// Record represents one framed raw line as read from a transport
type Record struct {
	Source    string
	Timestamp time.Time
	Line      string
}
