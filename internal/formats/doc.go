// Package formats turns raw extractor stream listings into a user-facing menu
// of offers and maps a chosen offer back into an extraction directive.
//
// Offers never carry a literal source format id. Video offers hold a height
// bounded selection rule that the extractor re-resolves at download time, since
// format ids are not stable across lookups.
package formats
