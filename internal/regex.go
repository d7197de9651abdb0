package internal

import (
	"regexp"
	"strings"
	"sync"
)

var regexCache sync.Map // pattern -> *regexp.Regexp

// CompilePattern compiles a schema pattern. ECMA-262 \uXXXX escapes are
// rewritten to RE2 syntax; lookaround and backreferences are not supported.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(translateECMAPattern(pattern))
	if err != nil {
		return nil, err
	}
	regexCache.Store(pattern, re)
	return re, nil
}

func translateECMAPattern(pattern string) string {
	if !strings.Contains(pattern, `\u`) {
		return pattern
	}
	var sb strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '\\' && i+1 < len(pattern) {
			if pattern[i+1] == 'u' && i+6 <= len(pattern) && isHex(pattern[i+2:i+6]) {
				sb.WriteString(`\x{`)
				sb.WriteString(pattern[i+2 : i+6])
				sb.WriteByte('}')
				i += 5
				continue
			}
			sb.WriteByte(c)
			sb.WriteByte(pattern[i+1])
			i++
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
