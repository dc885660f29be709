// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify delivers new-comment notices by mail and fans a notice out
// to several channels.
package notify

import (
	"context"
	"errors"

	"github.com/olegiv/ocms-blog/internal/blog"
)

// Multi sends a notice to every channel and joins their errors. One failing
// channel does not stop the others.
type Multi []blog.Notifier

// NotifyComment implements blog.Notifier.
func (m Multi) NotifyComment(ctx context.Context, n blog.CommentNotice) error {
	var errs []error
	for _, ch := range m {
		if err := ch.NotifyComment(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
