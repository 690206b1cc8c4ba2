package throttle

import "time"

type BucketConf struct {
	Burst     int           `json:"burst"`      // maximum number of tokens in the bucket
	Increment int           `json:"increment"`  // how many tokens to add each period
	PeriodSec int           `json:"period_sec"` // config form of Period
	Period    time.Duration `json:"-"`          // how often to add Increment
}

// Normalize fills Period from PeriodSec and guards against a conf that never refills
func (c *BucketConf) Normalize() {
	if c.Period <= 0 {
		c.Period = time.Duration(c.PeriodSec) * time.Second
	}
	if c.Period <= 0 {
		c.Period = time.Minute
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.Increment <= 0 {
		c.Increment = 1
	}
}
