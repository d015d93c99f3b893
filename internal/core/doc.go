// Package core provides the business logic for the sales data service.
//
// The package is independent of any transport layer and can be driven by
// HTTP handlers, CLI tools, or tests.
//
// # Loading
//
// Uploads are decoded by [Parser], an incremental CSV state machine that is
// fed bytes in any chunking and emits completed rows. [ParseReader] drives
// it in fixed-size chunks (64 KiB by default), so the bytes buffered by the
// decoder stay bounded regardless of file size. The first row is the header;
// its tokens are canonicalized by [CanonicalColumn] ("Customer Name" becomes
// "CustomerName") and later rows map positionally onto it.
//
// A successful load produces a new [Dataset] that replaces the active one
// in the [Store] in a single step. A failed load leaves the store untouched.
//
// # Querying
//
// Queries run a fixed pipeline over the active dataset:
//
//	Search -> Filter -> Sort -> Paginate
//
// Search and Filter see the whole dataset, so pagination metadata reports
// the post-filter count. Type coercions never fail: unparsable ages and
// quantities count as 0, unparsable dates sort as the Unix epoch and fail
// any date bound.
//
// # Filter options
//
// [DeriveFilterOptions] combines the curated [Vocabulary] with the age
// range observed in the active dataset.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages by [MapError]; each
// message carries a support code (FILE001-FILE005, DATA001, EXP001,
// UPL002-UPL005, RATE001, ERR000).
package core
