// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth holds the signed-in identity of a smartfix tab.
//
// # Session Store
//
// Store keeps the token, username and admin flag of the current tab. It is the
// only writer of those values; everything else reads through IsLoggedIn and
// the accessors:
//
//	store, err := auth.NewStore(tabStore)
//	if store.IsLoggedIn() {
//	    fmt.Println("signed in as", store.Username())
//	}
//
// # Login
//
// Client performs the backend login call and returns a Session ready to be
// stored:
//
//	client := auth.NewClient(auth.ClientConfig{BaseURL: "http://localhost:8080"})
//	sess, err := client.Login(ctx, auth.Credentials{Username: u, Password: p})
//	if errors.Is(err, auth.ErrInvalidCredentials) {
//	    // wrong username or password
//	}
//	err = store.SetSession(sess)
package auth
