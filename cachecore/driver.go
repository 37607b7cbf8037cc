package cachecore

// Driver identifies the backend holding cached query results.
type Driver string

const (
	DriverNull    Driver = "null"
	DriverMemory  Driver = "memory"
	DriverBounded Driver = "bounded"
	DriverFile    Driver = "file"
	DriverRedis   Driver = "redis"
	DriverSQL     Driver = "sql"
	DriverNATS    Driver = "nats"
	DriverDynamo  Driver = "dynamodb"
)
