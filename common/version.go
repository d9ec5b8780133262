/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package common

// Version is the engine version, reported by hosts that embed it.
const Version = "0.1.0"
