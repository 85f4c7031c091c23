// Package poller long-polls the Telegram Bot API and hands each update to the
// conversation engine.
//
// The offset sent with each poll is one past the highest update_id seen, so a
// returned batch is acknowledged by the next poll. Poll failures are logged
// and retried after a short backoff, or after the API's retry_after when it
// gives one.
//
// # Dispatch
//
// Two modes are supported:
//
//   - sequential: each update is handled inline before the next is looked at
//   - per_chat: each chat gets a worker goroutine fed by a buffered channel,
//     so chats progress independently while each chat stays in order
//
// Per-chat workers exit after sitting idle and are waited for on shutdown.
package poller
