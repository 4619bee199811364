// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-decide/models"
	"github.com/danielhkuo/quickly-decide/testutil"
)

// TestFullDecisionWorkflow tests the complete end-to-end workflow:
// 1. Register users and restaurants
// 2. Create poll
// 3. Members give opinions
// 4. A member changes their mind
// 5. Check the tally
// 6. Decide
// 7. Verify the poll is closed to further changes
func TestFullDecisionWorkflow(t *testing.T) {
	env := setupEnv(t, time.Hour)

	// Step 1: Register users and restaurants over HTTP
	var userIDs []string
	for _, name := range []string{"Dana", "Eli", "Fay"} {
		w := env.do("POST", "/users", models.CreateUserRequest{Name: name}, "")
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 1 - Create user %q failed: %d - %s", name, w.Code, w.Body.String())
		}
		var user models.User
		testutil.AssertJSON(t, w, &user)
		userIDs = append(userIDs, user.ID)
	}

	var restaurantIDs []string
	for _, name := range []string{"Ramen", "Curry", "Burgers"} {
		w := env.do("POST", "/restaurants", models.CreateRestaurantRequest{Name: name, Address: "1 Main St"}, "")
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 1 - Create restaurant %q failed: %d - %s", name, w.Code, w.Body.String())
		}
		var restaurant models.Restaurant
		testutil.AssertJSON(t, w, &restaurant)
		restaurantIDs = append(restaurantIDs, restaurant.ID)
	}
	t.Logf("Step 1 - Registered %d users and %d restaurants", len(userIDs), len(restaurantIDs))

	// Step 2: Create a poll
	w := env.do("POST", "/polls", models.CreatePollRequest{
		Name:    "Friday dinner",
		Members: userIDs,
		Options: restaurantIDs,
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 2 - Create poll failed: %d - %s", w.Code, w.Body.String())
	}
	var created models.CreatePollResponse
	testutil.AssertJSON(t, w, &created)
	pollID := created.Poll.ID
	adminKey := created.AdminKey
	t.Logf("Step 2 - Created poll: %s", pollID)

	// Step 3: Every member gives an opinion
	opinions := [][]string{
		{restaurantIDs[0]},
		{restaurantIDs[0], restaurantIDs[1]},
		{restaurantIDs[2]},
	}
	for i, member := range userIDs {
		w := env.do("POST", "/polls/"+pollID+"/opinions", models.GiveOpinionRequest{Member: member, Options: opinions[i]}, "")
		if w.Code != http.StatusOK {
			t.Fatalf("Step 3 - Opinion from member %d failed: %d - %s", i, w.Code, w.Body.String())
		}
	}

	// Step 4: Fay switches to Ramen
	w = env.do("POST", "/polls/"+pollID+"/opinions", models.GiveOpinionRequest{Member: userIDs[2], Options: []string{restaurantIDs[0]}}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Step 4 - Opinion update failed: %d - %s", w.Code, w.Body.String())
	}
	var view models.PollView
	testutil.AssertJSON(t, w, &view)
	if len(view.Opinions) != 3 {
		t.Fatalf("Step 4 - Expected 3 opinions after replacement, got %d", len(view.Opinions))
	}

	// Step 5: Ramen is the unanimous favourite
	w = env.do("GET", "/polls/"+pollID+"/results", nil, "")
	testutil.AssertStatus(t, w, http.StatusOK)
	var tally models.TallyResponse
	testutil.AssertJSON(t, w, &tally)
	if tally.Rankings[0].OptionID != restaurantIDs[0] || tally.Rankings[0].Count != 3 {
		t.Errorf("Step 5 - Expected Ramen with 3, got %+v", tally.Rankings[0])
	}
	if tally.Rankings[1].OptionID != restaurantIDs[1] || tally.Rankings[1].Count != 1 {
		t.Errorf("Step 5 - Expected Curry second with 1, got %+v", tally.Rankings[1])
	}
	if tally.Rankings[2].Count != 0 {
		t.Errorf("Step 5 - Expected Burgers with no opinions, got %+v", tally.Rankings[2])
	}

	// Step 6: Decide on the favourite
	w = env.do("POST", "/polls/"+pollID+"/decide", models.DecideRequest{Result: tally.Rankings[0].OptionID}, adminKey)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 6 - Decide failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 7: The completed poll keeps its result and rejects changes
	w = env.do("GET", "/polls/"+pollID, nil, "")
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &view)
	if view.Status != models.StatusCompleted || view.Result == nil || view.Result.Name != "Ramen" {
		t.Fatalf("Step 7 - Expected COMPLETED with Ramen, got %+v", view)
	}

	testutil.AssertStatus(t, env.do("POST", "/polls/"+pollID+"/opinions",
		models.GiveOpinionRequest{Member: userIDs[0], Options: []string{restaurantIDs[1]}}, ""), http.StatusConflict)
	testutil.AssertStatus(t, env.do("POST", "/polls/"+pollID+"/abandon", nil, adminKey), http.StatusConflict)

	w = env.do("GET", "/polls?status=COMPLETED&result="+restaurantIDs[0], nil, "")
	testutil.AssertStatus(t, w, http.StatusOK)
	var page models.PollPage
	testutil.AssertJSON(t, w, &page)
	if page.Total != 1 || page.Docs[0].ID != pollID {
		t.Errorf("Step 7 - Expected the poll in the completed listing, got %+v", page)
	}
}
