/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package core

import "errors"

// ErrUnreadableInput is the sentinel core.Parse wraps when a byte sequence
// cannot be read as an unencrypted PDF. The
// root pdfshrink package maps this into its own ErrorKind rather than
// duplicating the check, via errors.Is.
var ErrUnreadableInput = errors.New("unreadable PDF input")
