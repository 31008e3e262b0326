// Copyright 2025 The syncprim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !amd64 || noasm

package atomicx

// SpinHint is a no-op on targets without an assembly stub.
func SpinHint() {}
