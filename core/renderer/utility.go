// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import "strings"

func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func safeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}

// missing returns the entries of required that are not in available.
func missing(required, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, a := range available {
		have[strings.TrimSuffix(a, "\x00")] = struct{}{}
	}
	var out []string
	for _, r := range required {
		if _, ok := have[strings.TrimSuffix(r, "\x00")]; !ok {
			out = append(out, r)
		}
	}
	return out
}
