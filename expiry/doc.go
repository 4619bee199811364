// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package expiry abandons time-limited polls when their countdown runs out.

Each POLLING poll with a limit_time gets a timer.Timer whose limit is
limit_time minutes in ticks. When the timer stops on its limit the
scheduler calls Abandon; a poll decided in the meantime reports
ErrInvalidState, which is ignored.

	sched := expiry.NewScheduler(lc, time.Second)
	defer sched.Close()

	if err := sched.Resume(ctx, lc); err != nil {
		log.Fatal(err)
	}

	poll, _ := lc.Create(ctx, in)
	sched.Watch(poll)

	// after decide / abandon / remove
	sched.Forget(poll.ID)

On Resume the elapsed time since start_time is fed back into the timer, so
a restart does not extend a poll's deadline.
*/
package expiry
