package querycache

import "github.com/goforj/querycache/cachecore"

// Driver identifies the backend holding cached query results.
type Driver = cachecore.Driver

// Store is the backend contract a QueryCache writes entries to.
type Store = cachecore.Store

const (
	DriverNull    = cachecore.DriverNull
	DriverMemory  = cachecore.DriverMemory
	DriverBounded = cachecore.DriverBounded
	DriverFile    = cachecore.DriverFile
	DriverRedis   = cachecore.DriverRedis
	DriverSQL     = cachecore.DriverSQL
	DriverNATS    = cachecore.DriverNATS
	DriverDynamo  = cachecore.DriverDynamo
)
