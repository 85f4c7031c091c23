// Package telegram is a minimal Telegram Bot API client.
//
// Only the three methods the bot needs are implemented:
//
//   - getUpdates: long-polls for inbound messages from a given offset
//   - sendMessage: text replies, optionally with a parse mode
//   - sendPhoto: photo by URL
//
// Outbound calls share a token-bucket rate limiter. A Markdown reply the API
// cannot parse is re-sent once as plain text.
//
// Errors returned by the API unwrap to ErrAPI; network failures are returned
// wrapped as they come from net/http.
package telegram
