// Copyright 2026 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logcap

import (
	"runtime"
	"strings"
)

// UnknownName is the sentinel used for class and method names the capture
// machinery could not determine. Comparative matchers treat it as matching
// nothing, including itself.
const UnknownName = "<unknown>"

// resolveCallSite maps a program counter to the class and method names of
// the nearest meaningful enclosing symbol. A zero or unresolvable pc yields
// the UnknownName sentinels.
func resolveCallSite(pc uintptr) (class, method string) {
	if pc == 0 {
		return UnknownName, UnknownName
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return UnknownName, UnknownName
	}
	return demangleFunction(fn.Name())
}

// demangleFunction reduces a runtime function name to the nearest enclosing
// named class and method, peeling the Go toolchain's synthetic wrappers:
// closure suffixes (".func1", nested ".func1.2"), method-value thunks
// ("-fm"), goroutine wrappers (".gowrap1"), and generic instantiations
// ("[...]"). An unrecognized shape falls back to the raw name as the method
// with an unknown class, and warns once per process.
func demangleFunction(name string) (class, method string) {
	if name == "" {
		return UnknownName, UnknownName
	}

	pkgPath := ""
	base := name
	if slash := strings.LastIndexByte(name, '/'); slash >= 0 {
		pkgPath = name[:slash+1]
		base = name[slash+1:]
	}
	base = stripBrackets(base)

	segments := strings.Split(base, ".")
	for len(segments) > 2 && syntheticSegment(segments[len(segments)-1]) {
		segments = segments[:len(segments)-1]
	}
	last := len(segments) - 1
	segments[last] = strings.TrimSuffix(segments[last], "-fm")

	switch len(segments) {
	case 2:
		// package.Function
		return pkgPath + segments[0], segments[1]
	case 3:
		// package.Receiver.Method, with pointer receivers normalized.
		recv := strings.TrimSuffix(strings.TrimPrefix(segments[1], "(*"), ")")
		return pkgPath + segments[0] + "." + recv, segments[2]
	default:
		warnOnce("callsite:"+name,
			"logcap: unrecognized call-site naming convention", "function", name)
		return UnknownName, name
	}
}

// syntheticSegment reports whether a dotted name segment is one of the
// compiler-generated wrappers that never corresponds to source-level code.
func syntheticSegment(seg string) bool {
	if seg == "" {
		return true
	}
	if allDigits(seg) {
		return true
	}
	for _, prefix := range []string{"func", "gowrap"} {
		if rest, ok := strings.CutPrefix(seg, prefix); ok && rest != "" && allDigits(rest) {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// stripBrackets removes generic instantiation markers such as "[...]" or
// "[go.shape.int]" so they never leak into class or method names.
func stripBrackets(s string) string {
	for {
		open := strings.IndexByte(s, '[')
		if open < 0 {
			return s
		}
		depth := 0
		end := -1
		for i := open; i < len(s); i++ {
			switch s[i] {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					end = i
				}
			}
			if end >= 0 {
				break
			}
		}
		if end < 0 {
			// Unbalanced; leave the remainder untouched.
			return s
		}
		s = s[:open] + s[end+1:]
	}
}

// outerClassName reduces a class name to its enclosing scope: the package
// path for a method's receiver type, or the class itself when it already
// names a bare package. The unknown sentinel stays unknown.
func outerClassName(class string) string {
	if class == UnknownName {
		return UnknownName
	}
	base := class
	prefixLen := 0
	if slash := strings.LastIndexByte(class, '/'); slash >= 0 {
		prefixLen = slash + 1
		base = class[slash+1:]
	}
	if dot := strings.IndexByte(base, '.'); dot >= 0 {
		return class[:prefixLen+dot]
	}
	return class
}

// currentGoroutineID returns the identity token of the calling goroutine,
// parsed from the header line emitted by runtime.Stack. The token is opaque:
// it is stable for the life of the goroutine and comparable for equality,
// nothing more.
func currentGoroutineID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := strings.Fields(string(buf[:n]))
	if len(fields) >= 2 && fields[0] == "goroutine" {
		return fields[1]
	}
	return "0"
}
