// Copyright 2025 Blink Labs Software
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

// Package reentrancy marks contexts that are executing a ledger callback.
package reentrancy

import (
	"context"
	"errors"
)

var ErrReentrantCall = errors.New("reentrant call")

type ctxKey struct{}

// Enter returns a context marking that a callback is running
func Enter(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, true)
}

func Active(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(ctxKey{}).(bool)
	return v
}

// Check fails with ErrReentrantCall when ctx is inside a callback
func Check(ctx context.Context) error {
	if Active(ctx) {
		return ErrReentrantCall
	}
	return nil
}
