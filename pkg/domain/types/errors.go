package types

import "github.com/m-mizutani/goerr/v2"

// ErrSyncTokenInvalid indicates the calendar provider rejected the stored
// continuation token. It is a distinct error class from generic provider
// failures: the engine recovers by discarding the token and running a
// full resync.
var ErrSyncTokenInvalid = goerr.New("sync token invalidated by provider")

// ErrIllegalTransition indicates a reported bot status would move the
// lifecycle backward or out of a terminal state. The reported transition
// is rejected, never applied.
var ErrIllegalTransition = goerr.New("illegal bot status transition")

// ErrBotFailed indicates the bot provider explicitly reported a permanent
// failure. This is the only error class that is surfaced to users, as the
// failed terminal status.
var ErrBotFailed = goerr.New("bot provider reported failure")
