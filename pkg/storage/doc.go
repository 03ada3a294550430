// Package storage keeps job seed files in S3-compatible object storage.
//
//	store, err := storage.New(storage.Config{
//		Bucket:    "seeds",
//		Endpoint:  "http://localhost:9000",
//		AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
//		SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
//		PathStyle: true,
//	})
//
//	obj, err := store.Put(ctx, r.Body, r.ContentLength, storage.WithPrefix("jobs/42"))
//	url, err := store.URL(ctx, obj.Key, storage.WithExpiry(5*time.Minute))
//
// Keys are generated as {prefix}/{uuid}{ext} unless WithKey is given. The
// content type is sniffed from the first bytes of the object; fuzzing seeds
// are usually opaque binaries and end up as application/octet-stream with a
// .bin extension.
//
// Errors wrap the sentinels in this package. Use errors.Is with ErrNotFound,
// ErrEmptyObject or ErrObjectTooLarge to tell caller mistakes from backend
// failures.
package storage
