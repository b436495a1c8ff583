package common

import "strings"

// Venue returns the venue part of a "CODE.VENUE" symbol, or "" when the symbol carries none.
func Venue(symbol string) string {
	if i := strings.LastIndexByte(symbol, '.'); i >= 0 && i < len(symbol)-1 {
		return symbol[i+1:]
	}
	return ""
}

// Code returns the symbol without its venue suffix.
func Code(symbol string) string {
	if i := strings.LastIndexByte(symbol, '.'); i >= 0 {
		return symbol[:i]
	}
	return symbol
}
