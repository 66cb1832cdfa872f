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

package extender

// Width is the number of providers whose CanExtend answer a Bitmap can
// remember. Providers at index Width and beyond are asked again whenever
// their answer is needed.
const Width = 64

// Bitmap records which of the first Width providers answered CanExtend
// with true during one pass.
type Bitmap uint64

// Tracked reports whether index i has a slot.
func Tracked(i int) bool { return i >= 0 && i < Width }

// Set marks provider i. It reports false, and records nothing, when i has
// no slot.
func (b *Bitmap) Set(i int) bool {
	if !Tracked(i) {
		return false
	}
	*b |= 1 << uint(i)
	return true
}

// Has reports whether provider i was marked. Untracked indexes are never
// marked.
func (b Bitmap) Has(i int) bool {
	return Tracked(i) && b&(1<<uint(i)) != 0
}
