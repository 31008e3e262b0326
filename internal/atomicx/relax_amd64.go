// Copyright 2025 The syncprim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build amd64 && !noasm

package atomicx

// SpinHint executes the x86_64 PAUSE instruction. Busy-wait loops call it
// between polls so the core backs off without leaving userspace.
//
//go:noescape
func SpinHint()
