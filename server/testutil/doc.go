// Package testutil runs a server.Server in-process for tests.
//
//	ts := testutil.New(t)
//	require.NoError(t, ts.Server().Register(ctx, commonauth.New(), options))
//	ts.Server().Route(http.MethodGet, "/", nil, handler)
//
//	resp := ts.Get(t, "/", testutil.Authorization("Bearer", "s3cret"))
package testutil
