// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package mongostore keeps polls, users and restaurants in MongoDB.

Records live in the polls, users and restaurants collections and use
ObjectIDs, exposed as hex strings. ReplacePoll filters on _id and version
and increments version in the same update, so two writers racing on one
poll cannot both win.

	store, err := mongostore.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close(ctx)

	lc := lifecycle.New(store, store)

Tests that need a server read TEST_MONGO_URI and skip when it is unset.
*/
package mongostore
