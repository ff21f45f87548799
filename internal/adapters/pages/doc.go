// Package pages serves saved result and monitoring pages from local storage
//
// Design choices:
// - Fetching from the live site is out of scope; callers save pages first.
// - Files ending in .gz are gunzipped transparently.
// - Reads are capped so a wrong path (a log dump, a binary) fails fast.
// - Monitoring pages sort by the page number embedded in the file name.
package pages
