package redis

// KeyPrefixTitle namespaces resolved media titles.
const KeyPrefixTitle = "homedash:title:"

// TitleKey returns the Redis key for a cached media title.
// Example: "movie:438631" -> "homedash:title:movie:438631"
func TitleKey(key string) string {
	return KeyPrefixTitle + key
}
