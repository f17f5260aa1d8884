// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package utils

import "strings"

func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// CompactStrings trims every entry and drops the empty ones.
func CompactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !IsEmpty(s) {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
