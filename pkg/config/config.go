// Copyright 2024 OrcaDB
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"github.com/BurntSushi/toml"

	"github.com/orcadb/collections/pkg/common/moerr"
	"github.com/orcadb/collections/pkg/logutil"
)

// Tunables of the containers. Zero values mean "use the default".
type Tunables struct {
	// initial bucket count of hash tables, must be a power of two
	HashInitialBuckets int `toml:"hashInitialBuckets"`

	// numerator/denominator of the hash table load factor
	HashLoadFactorNum   int `toml:"hashLoadFactorNum"`
	HashLoadFactorDenom int `toml:"hashLoadFactorDenom"`

	// chain length at which a bucket is converted to a tree
	TreeifyThreshold int `toml:"treeifyThreshold"`

	// minimum bucket count before treeify kicks in; smaller tables resize instead
	TreeifyMinBuckets int `toml:"treeifyMinBuckets"`

	// chain length at or below which a treeified bucket reverts to a chain
	UntreeifyThreshold int `toml:"untreeifyThreshold"`

	// shard count of the concurrent map, must be a power of two
	CMapShards int `toml:"cmapShards"`

	// default capacity of bounded queues created with capacity <= 0
	QueueDefaultCapacity int `toml:"queueDefaultCapacity"`

	Log logutil.LogConfig `toml:"log"`
}

var defaultTunables = Tunables{
	HashInitialBuckets:   16,
	HashLoadFactorNum:    3,
	HashLoadFactorDenom:  4,
	TreeifyThreshold:     8,
	TreeifyMinBuckets:    64,
	UntreeifyThreshold:   6,
	CMapShards:           32,
	QueueDefaultCapacity: 1024,
	Log:                  logutil.LogConfig{Level: "info", Format: "console"},
}

// Default returns a copy of the built-in tunables.
func Default() Tunables {
	return defaultTunables
}

// Load reads tunables from a TOML file, filling unset fields with defaults.
func Load(path string) (Tunables, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, moerr.NewBadConfig("decode %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	logutil.Infof("tunables loaded from %s", path)
	return cfg, nil
}

func (c *Tunables) Validate() error {
	if c.HashInitialBuckets <= 0 || c.HashInitialBuckets&(c.HashInitialBuckets-1) != 0 {
		return moerr.NewBadConfig("hashInitialBuckets %d is not a power of two", c.HashInitialBuckets)
	}
	if c.HashLoadFactorNum <= 0 || c.HashLoadFactorDenom <= 0 ||
		c.HashLoadFactorNum >= c.HashLoadFactorDenom {
		return moerr.NewBadConfig("load factor %d/%d out of (0, 1)",
			c.HashLoadFactorNum, c.HashLoadFactorDenom)
	}
	if c.UntreeifyThreshold >= c.TreeifyThreshold {
		return moerr.NewBadConfig("untreeifyThreshold %d must be below treeifyThreshold %d",
			c.UntreeifyThreshold, c.TreeifyThreshold)
	}
	if c.CMapShards <= 0 || c.CMapShards&(c.CMapShards-1) != 0 {
		return moerr.NewBadConfig("cmapShards %d is not a power of two", c.CMapShards)
	}
	if c.QueueDefaultCapacity <= 0 {
		return moerr.NewBadConfig("queueDefaultCapacity %d must be positive", c.QueueDefaultCapacity)
	}
	return nil
}
