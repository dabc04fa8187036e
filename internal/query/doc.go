// Package query implements filtered list views over channel mappings and programs.
//
// A [Source] answers one [Filter]. Two implementations exist, chosen by data volume:
//   - [Local] : in-memory predicate filter over an already fetched list (mappings)
//   - [Remote] : server-side pagination through a fetch function (program search)
//
// [List] is the view-side controller. It owns the filter, the current page of items, the total
// row count and a loading flag. Changing the channel or date resets the page to 1. Every
// [List.Refresh] carries a sequence number and only the most recently issued request may
// update the view; responses that arrive after a newer request started are discarded.
package query
