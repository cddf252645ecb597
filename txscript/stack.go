// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// stack represents the evaluator's main or alt data stack: a list of byte
// strings, indexed from the bottom (0) for convenience; most operations
// address it from the top.
type stack struct {
	items [][]byte
}

func (s *stack) Depth() int { return len(s.items) }

func (s *stack) PushByteArray(so []byte) { s.items = append(s.items, so) }

func (s *stack) PushInt(n scriptNum) { s.PushByteArray(n.Bytes()) }

func (s *stack) PushBool(b bool) { s.PushByteArray(fromBool(b)) }

// nthFromTop returns the index into items for the nth item from the top
// (0-based), or an error if the stack is too shallow.
func (s *stack) nthFromTop(n int) (int, error) {
	idx := len(s.items) - n - 1
	if idx < 0 || n < 0 {
		return 0, scriptError(ErrStackUnderflow, "index %d is invalid for stack size %d", n, len(s.items))
	}
	return idx, nil
}

func (s *stack) PopByteArray() ([]byte, error) {
	idx, err := s.nthFromTop(0)
	if err != nil {
		return nil, err
	}
	item := s.items[idx]
	s.items = s.items[:idx]
	return item, nil
}

func (s *stack) PopInt() (scriptNum, error) {
	v, err := s.PopByteArray()
	if err != nil {
		return 0, err
	}
	return makeScriptNum(v, true, defaultScriptNumLen)
}

func (s *stack) PopBool() (bool, error) {
	v, err := s.PopByteArray()
	if err != nil {
		return false, err
	}
	return asBool(v), nil
}

func (s *stack) PeekByteArray(n int) ([]byte, error) {
	idx, err := s.nthFromTop(n)
	if err != nil {
		return nil, err
	}
	return s.items[idx], nil
}

func (s *stack) PeekInt(n int) (scriptNum, error) {
	v, err := s.PeekByteArray(n)
	if err != nil {
		return 0, err
	}
	return makeScriptNum(v, true, defaultScriptNumLen)
}

func (s *stack) PeekBool(n int) (bool, error) {
	v, err := s.PeekByteArray(n)
	if err != nil {
		return false, err
	}
	return asBool(v), nil
}

// DropN removes the top n items.
func (s *stack) DropN(n int) error {
	for ; n > 0; n-- {
		if _, err := s.PopByteArray(); err != nil {
			return err
		}
	}
	return nil
}

// DupN duplicates the top n items.
func (s *stack) DupN(n int) error {
	if n < 1 {
		return scriptError(ErrStackUnderflow, "dup count %d too small", n)
	}
	for i := 0; i < n; i++ {
		v, err := s.PeekByteArray(n - 1)
		if err != nil {
			return err
		}
		s.PushByteArray(v)
	}
	return nil
}

// RotN rotates the top 3*n items to the left n times.
func (s *stack) RotN(n int) error {
	entries := 3 * n
	if n < 1 {
		return scriptError(ErrStackUnderflow, "rot count %d too small", n)
	}
	idx, err := s.nthFromTop(entries - 1)
	if err != nil {
		return err
	}
	sl := s.items[idx:]
	rotated := make([][]byte, 0, entries)
	rotated = append(rotated, sl[n:]...)
	rotated = append(rotated, sl[:n]...)
	copy(sl, rotated)
	return nil
}

// SwapN swaps the top n items with the n items below them.
func (s *stack) SwapN(n int) error {
	entries := 2 * n
	idx, err := s.nthFromTop(entries - 1)
	if err != nil {
		return err
	}
	sl := s.items[idx:]
	swapped := make([][]byte, 0, entries)
	swapped = append(swapped, sl[n:]...)
	swapped = append(swapped, sl[:n]...)
	copy(sl, swapped)
	return nil
}

// OverN duplicates the n items found 2*n-1 items back on the stack.
func (s *stack) OverN(n int) error {
	entries := 2*n - 1
	idx, err := s.nthFromTop(entries)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		v := s.items[idx+i]
		s.PushByteArray(v)
	}
	return nil
}

// PickN copies the item n back (0 = top) to the top of the stack.
func (s *stack) PickN(n int) error {
	v, err := s.PeekByteArray(n)
	if err != nil {
		return err
	}
	s.PushByteArray(v)
	return nil
}

// RollN moves the item n back (0 = top) to the top of the stack.
func (s *stack) RollN(n int) error {
	idx, err := s.nthFromTop(n)
	if err != nil {
		return err
	}
	v := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.PushByteArray(v)
	return nil
}

// Tuck inserts a copy of the top item before the second-to-top item.
func (s *stack) Tuck() error {
	v2, err := s.PeekByteArray(0)
	if err != nil {
		return err
	}
	idx, err := s.nthFromTop(1)
	if err != nil {
		return err
	}
	before := append([][]byte{}, s.items[:idx]...)
	after := append([][]byte{}, s.items[idx:]...)
	before = append(before, v2)
	s.items = append(before, after...)
	return nil
}
