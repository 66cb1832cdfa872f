/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSignature is returned by ParseSig for malformed signatures.
var ErrInvalidSignature = errors.New("tdx(metadata): invalid type signature")

// SigKind is the shape of a TypeSig.
type SigKind int

const (
	// SigNamed references a non-generic definition (or an open definition).
	SigNamed SigKind = iota
	// SigGenericParam references the Position-th generic parameter of the
	// enclosing definition.
	SigGenericParam
	// SigArray is an array of Elem with the given Rank.
	SigArray
	// SigGeneric is a closed or partially open instantiation Ref<Args...>.
	SigGeneric
)

// TypeSig is a type reference as it appears inside metadata records. It may
// mention the enclosing definition's generic parameters.
//
// Textual form:
//
//	System.Int32                    named
//	!0                              generic parameter 0
//	System.Int32[]  System.Byte[,]  arrays
//	System.Nullable`1<!0>           generic instantiation
type TypeSig struct {
	Kind     SigKind
	Ref      TypeRef
	Position int
	Elem     *TypeSig
	Rank     int
	Args     []TypeSig
}

// Named builds a SigNamed signature.
func Named(ref TypeRef) TypeSig { return TypeSig{Kind: SigNamed, Ref: ref} }

// Param builds a SigGenericParam signature.
func Param(position int) TypeSig { return TypeSig{Kind: SigGenericParam, Position: position} }

// ArraySig builds a single- or multi-dimensional array signature.
func ArraySig(elem TypeSig, rank int) TypeSig {
	if rank < 1 {
		rank = 1
	}
	return TypeSig{Kind: SigArray, Elem: &elem, Rank: rank}
}

// Generic builds a SigGeneric signature.
func Generic(ref TypeRef, args ...TypeSig) TypeSig {
	return TypeSig{Kind: SigGeneric, Ref: ref, Args: args}
}

// String renders the signature in its textual form.
func (s TypeSig) String() string {
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s TypeSig) write(b *strings.Builder) {
	switch s.Kind {
	case SigGenericParam:
		b.WriteByte('!')
		b.WriteString(strconv.Itoa(s.Position))
	case SigArray:
		if s.Elem != nil {
			s.Elem.write(b)
		}
		b.WriteByte('[')
		b.WriteString(strings.Repeat(",", max(s.Rank-1, 0)))
		b.WriteByte(']')
	case SigGeneric:
		b.WriteString(string(s.Ref))
		b.WriteByte('<')
		for i, a := range s.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			a.write(b)
		}
		b.WriteByte('>')
	default:
		b.WriteString(string(s.Ref))
	}
}

// MentionsParams reports whether the signature references any generic parameter.
func (s TypeSig) MentionsParams() bool {
	switch s.Kind {
	case SigGenericParam:
		return true
	case SigArray:
		return s.Elem != nil && s.Elem.MentionsParams()
	case SigGeneric:
		for _, a := range s.Args {
			if a.MentionsParams() {
				return true
			}
		}
	}
	return false
}

// ParseSig parses the textual form of a signature.
func ParseSig(text string) (TypeSig, error) {
	p := sigParser{in: strings.TrimSpace(text)}
	sig, err := p.parse()
	if err != nil {
		return TypeSig{}, err
	}
	if p.pos != len(p.in) {
		return TypeSig{}, fmt.Errorf("%w: trailing input %q", ErrInvalidSignature, p.in[p.pos:])
	}
	return sig, nil
}

// MustParseSig is ParseSig that panics on error. Intended for literals.
func MustParseSig(text string) TypeSig {
	s, err := ParseSig(text)
	if err != nil {
		panic(err)
	}
	return s
}

type sigParser struct {
	in  string
	pos int
}

func (p *sigParser) parse() (TypeSig, error) {
	p.skipSpace()
	var sig TypeSig
	if p.pos < len(p.in) && p.in[p.pos] == '!' {
		p.pos++
		start := p.pos
		for p.pos < len(p.in) && p.in[p.pos] >= '0' && p.in[p.pos] <= '9' {
			p.pos++
		}
		n, err := strconv.Atoi(p.in[start:p.pos])
		if err != nil {
			return TypeSig{}, fmt.Errorf("%w: bad generic parameter at %d", ErrInvalidSignature, start)
		}
		sig = Param(n)
	} else {
		start := p.pos
		for p.pos < len(p.in) && !strings.ContainsRune("<>[],", rune(p.in[p.pos])) {
			p.pos++
		}
		name := strings.TrimSpace(p.in[start:p.pos])
		if name == "" {
			return TypeSig{}, fmt.Errorf("%w: empty type name at %d", ErrInvalidSignature, start)
		}
		sig = Named(TypeRef(name))
		if p.pos < len(p.in) && p.in[p.pos] == '<' {
			p.pos++
			var args []TypeSig
			for {
				a, err := p.parse()
				if err != nil {
					return TypeSig{}, err
				}
				args = append(args, a)
				p.skipSpace()
				if p.pos >= len(p.in) {
					return TypeSig{}, fmt.Errorf("%w: unterminated argument list", ErrInvalidSignature)
				}
				if p.in[p.pos] == ',' {
					p.pos++
					continue
				}
				if p.in[p.pos] == '>' {
					p.pos++
					break
				}
				return TypeSig{}, fmt.Errorf("%w: unexpected %q at %d", ErrInvalidSignature, p.in[p.pos], p.pos)
			}
			sig = Generic(sig.Ref, args...)
		}
	}
	for p.pos < len(p.in) && p.in[p.pos] == '[' {
		p.pos++
		rank := 1
		for p.pos < len(p.in) && p.in[p.pos] == ',' {
			rank++
			p.pos++
		}
		if p.pos >= len(p.in) || p.in[p.pos] != ']' {
			return TypeSig{}, fmt.Errorf("%w: unterminated array rank", ErrInvalidSignature)
		}
		p.pos++
		sig = ArraySig(sig, rank)
	}
	p.skipSpace()
	return sig, nil
}

func (p *sigParser) skipSpace() {
	for p.pos < len(p.in) && p.in[p.pos] == ' ' {
		p.pos++
	}
}
