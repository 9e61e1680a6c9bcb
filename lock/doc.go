// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package lock provides per-key mutual exclusion for vote submissions.
//
// LocalLocker covers a single process. RedisLocker covers several server
// instances sharing one Redis: it takes the key with SET NX PX and a random
// token, and releases it with a compare-and-delete script so an expired
// holder never removes a lock someone else now owns.
package lock
