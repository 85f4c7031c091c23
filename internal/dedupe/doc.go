// Package dedupe remembers recently processed Telegram update IDs so that an
// update redelivered after a failed offset acknowledgement is handled once.
package dedupe
