// Package source loads the pixels behind image views.
//
// A [Fetcher] turns (image id, view name) into a decoded image. The
// [HTTPFetcher] requests
//
//	{base URL}{image id}/{view name}
//
// from the image host, retrying transient failures and keeping the raw bytes
// in a [cache.Cache]. PNG, JPEG, GIF, TIFF, BMP and WebP are decoded.
//
// [Sources] is the per-session cache of in-flight and completed loads. Each
// view is loaded at most once per bound image; callers get a [Future] and
// wait on its Done channel instead of polling. Binding a new image with
// [Sources.Reset] cancels every load of the previous one.
package source
