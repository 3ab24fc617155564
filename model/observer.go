//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package model

import (
	"context"
	"time"
)

// Call describes one completed Generate call.
type Call struct {
	// Model is the model name.
	Model string
	// Elapsed is the wall time of the call.
	Elapsed time.Duration
	// Usage is the reported token usage, if any.
	Usage *Usage
	// Err is the call error, nil on success.
	Err error
}

// Observer is notified after every Generate call. It must be safe for
// concurrent use and must not block.
type Observer func(ctx context.Context, call Call)
