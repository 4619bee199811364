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

func TestCreateUser(t *testing.T) {
	env := setupEnv(t, time.Hour)

	testCases := []struct {
		name           string
		body           any
		expectedStatus int
	}{
		{"valid user", models.CreateUserRequest{Name: "Gus"}, http.StatusCreated},
		{"name is trimmed", models.CreateUserRequest{Name: "  Hana  "}, http.StatusCreated},
		{"missing name", models.CreateUserRequest{}, http.StatusBadRequest},
		{"blank name", models.CreateUserRequest{Name: "   "}, http.StatusBadRequest},
		{"invalid JSON", "not json", http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do("POST", "/users", tc.body, "")
			testutil.AssertStatus(t, w, tc.expectedStatus)
			if tc.expectedStatus != http.StatusCreated {
				return
			}

			var user models.User
			testutil.AssertJSON(t, w, &user)
			if user.ID == "" {
				t.Fatal("Expected an id")
			}

			w = env.do("GET", "/users/"+user.ID, nil, "")
			testutil.AssertStatus(t, w, http.StatusOK)
			var fetched models.User
			testutil.AssertJSON(t, w, &fetched)
			if fetched != user {
				t.Errorf("Expected %+v, got %+v", user, fetched)
			}
		})
	}

	testutil.AssertStatus(t, env.do("GET", "/users/missing", nil, ""), http.StatusNotFound)
}

func TestCreateRestaurant(t *testing.T) {
	env := setupEnv(t, time.Hour)

	w := env.do("POST", "/restaurants", models.CreateRestaurantRequest{Name: "Pho", Address: " 2 Side St "}, "")
	testutil.AssertStatus(t, w, http.StatusCreated)

	var restaurant models.Restaurant
	testutil.AssertJSON(t, w, &restaurant)
	if restaurant.Name != "Pho" || restaurant.Address != "2 Side St" {
		t.Errorf("Unexpected restaurant: %+v", restaurant)
	}

	w = env.do("GET", "/restaurants/"+restaurant.ID, nil, "")
	testutil.AssertStatus(t, w, http.StatusOK)
	var fetched models.Restaurant
	testutil.AssertJSON(t, w, &fetched)
	if fetched != restaurant {
		t.Errorf("Expected %+v, got %+v", restaurant, fetched)
	}

	testutil.AssertStatus(t, env.do("POST", "/restaurants", models.CreateRestaurantRequest{Address: "nowhere"}, ""), http.StatusBadRequest)
	testutil.AssertStatus(t, env.do("GET", "/restaurants/missing", nil, ""), http.StatusNotFound)
}
