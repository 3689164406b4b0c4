package normalisers

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the timestamp shapes the parliamentary APIs emit.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Date is a lenient timestamp that accepts the several formats the
// upstream APIs use, with or without zone and fractional seconds.
// null and the empty string decode to the zero value.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}

	s := strings.Trim(string(data), `"`)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("unrecognised date %q", s)
}

// House is a chamber name that tolerates the numeric codes some
// endpoints use: 1 is Commons, 2 is Lords.
type House string

// UnmarshalJSON implements json.Unmarshaler.
func (h *House) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*h = ""
		return nil
	}

	s := strings.Trim(string(data), `"`)
	switch s {
	case "1":
		*h = "Commons"
		return nil
	case "2":
		*h = "Lords"
		return nil
	}

	if _, err := strconv.Atoi(s); err == nil {
		return fmt.Errorf("unknown house code %s", s)
	}
	*h = House(s)
	return nil
}
