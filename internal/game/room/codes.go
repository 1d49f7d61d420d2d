package room

import "go.uber.org/zap"

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// collisionWarnThreshold is the retry count past which code generation
// collisions are logged. At 8 letters from a 26-letter alphabet the odds
// of even one collision are astronomically low, so repeated collisions
// indicate something is wrong with the randomness source.
const collisionWarnThreshold = 10

// generateCode draws a fresh room code, retrying until it finds one that
// has never been handed out before. Codes are drawn uniformly from
// uppercase ASCII letters and compared case-sensitively. The loop is
// unbounded on purpose: generated codes are remembered forever, so a cap
// would turn an unreachable probability into a reachable failure mode.
//
// Precondition: caller holds r.mu.
// Postcondition: the returned code is recorded in r.codes and never
// returned again.
func (r *Registry) generateCode() string {
	retries := 0
	for {
		buf := make([]byte, r.cfg.RoomCodeLength)
		for i := range buf {
			buf[i] = codeAlphabet[r.src.Intn(len(codeAlphabet))]
		}
		code := string(buf)

		if !r.codes[code] {
			r.codes[code] = true
			return code
		}

		retries++
		if retries >= collisionWarnThreshold {
			r.logger.Warn("room code generation colliding repeatedly",
				zap.Int("retries", retries),
				zap.Int("known_codes", len(r.codes)),
			)
		}
	}
}
