// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source so that retry and
// backoff behavior can be tested without sleeping.
//
// Production code holds a Clock field set to Real(). Tests use Fake(),
// wait for the code under test to arm its timer with WaitForTimers,
// and then fire it deterministically with Advance:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	loop := newLoop(fake)
//	go loop.Run(ctx)
//	fake.WaitForTimers(1)
//	fake.Advance(5 * time.Second)
package clock
