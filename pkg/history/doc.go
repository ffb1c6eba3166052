// Package history persists chat messages.
//
// Two logs are kept on disk:
//   - the context file: every message from every past session, read once at
//     startup and overwritten wholesale at shutdown.
//   - the conversation archive: one file per session holding only that
//     session's messages. Archive files are written once and never read back.
package history
