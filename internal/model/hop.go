package model

import (
	"strconv"
	"strings"
)

// Delimiter separates fields on the wire and in the data log
const Delimiter = ";"

// FieldCount is the number of delimited fields in one hop line
const FieldCount = 9

// LogHeader is the first line of every data log file
const LogHeader = "Date;Time;Source;Destination;Sequence;NextHop;QtyHops;Kind;Retries"

// HopRecord is one validated routing-hop telemetry event
type HopRecord struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Sequence    string `json:"sequence"`
	NextHop     string `json:"next_hop"`
	QtyHops     string `json:"qty_hops"`
	Kind        string `json:"kind"`
	Retries     int    `json:"retries"`
	// RetriesText is the retries token as received; empty for records
	// built in code
	RetriesText string `json:"-"`
}

// Fields returns the record's tokens in wire and log order. The retries
// token is written as received when it is known.
func (r HopRecord) Fields() []string {
	retries := r.RetriesText
	if retries == "" {
		retries = strconv.Itoa(r.Retries)
	}

	return []string{
		r.Date,
		r.Time,
		r.Source,
		r.Destination,
		r.Sequence,
		r.NextHop,
		r.QtyHops,
		r.Kind,
		retries,
	}
}

// String formats the record as one delimited line without a terminator
func (r HopRecord) String() string {
	return strings.Join(r.Fields(), Delimiter)
}

// ToMap converts the record to a map representation. "line" holds the
// record exactly as it is written to the data log.
func (r HopRecord) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"date":        r.Date,
		"time":        r.Time,
		"source":      r.Source,
		"destination": r.Destination,
		"sequence":    r.Sequence,
		"next_hop":    r.NextHop,
		"qty_hops":    r.QtyHops,
		"kind":        r.Kind,
		"retries":     r.Retries,
		"line":        r.String(),
	}
}
