package badger

import (
	"fmt"
	"strings"

	"github.com/poiesic/mailvec/core"
	"github.com/poiesic/mailvec/storage"
)

// Key prefixes for different data types
const (
	recordPrefix = "embrec"
	infoPrefix   = "embinfo"
)

// validateCollection rejects names the ':'-delimited key layout cannot
// isolate: collection "a" scans prefix "embrec:a:", which would also
// match every key of a collection named "a:b".
func validateCollection(collection string) error {
	if collection == "" || strings.ContainsRune(collection, ':') {
		return fmt.Errorf("%w: %q", storage.ErrInvalidCollection, collection)
	}
	return nil
}

// makeCollectionPrefix generates the scan prefix for a collection's records.
func makeCollectionPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", recordPrefix, collection))
}

// makeRecordKey generates a key for an embedding record.
// Format: prefix:collection:emailID:type
func makeRecordKey(collection, emailID string, typ core.EmbeddingType) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:%d", recordPrefix, collection, emailID, typ))
}

// makeInfoKey generates the key for a collection manifest.
func makeInfoKey(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s", infoPrefix, collection))
}
