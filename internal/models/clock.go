package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockTime is a time of day in minutes since midnight
type ClockTime int

// ParseClock parses an "HH:mm" time of day
func ParseClock(value string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 || len(parts[0]) != 2 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minutes in %q", value)
	}
	return ClockTime(hours*60 + minutes), nil
}

// String formats the time as "HH:mm". Values past midnight keep counting hours.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}
