package cmd

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// secondsValue is a kingpin value holding duration, plain numbers are interpreted as seconds.
type secondsValue time.Duration

func (v *secondsValue) Set(s string) error {
	d, err := parseSeconds(s)
	if err != nil {
		return err
	}
	*v = secondsValue(d)
	return nil
}

func (v *secondsValue) String() string {
	return time.Duration(*v).String()
}

// parseSeconds parses either number of seconds, like 5 or 0.5, or Go duration, like 500ms.
func parseSeconds(s string) (time.Duration, error) {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("'%s' is not a valid number of seconds", s)
		}
		return time.Duration(f * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("'%s' is neither number of seconds nor duration", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("'%s' must not be negative", s)
	}
	return d, nil
}
