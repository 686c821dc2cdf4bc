// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ugi

const (
	// MaxPly is the ply limit used when a search has no depth limit.
	MaxPly = 99.0

	// MaxTime is both the default and the ceiling for a search's think
	// time, in seconds.
	MaxTime = 3600.0
)

// PlyPresets are the depth limits offered to users, besides no limit.
var PlyPresets = []float64{1, 3, 5, 7}

// SearchSettings are the limits of a single search.
type SearchSettings struct {
	MaxPly  float64 `yaml:"max-ply"`
	MaxTime float64 `yaml:"max-time"`
}

// DefaultSettings returns settings for an unlimited search.
func DefaultSettings() SearchSettings {
	return SearchSettings{
		MaxPly:  MaxPly,
		MaxTime: MaxTime,
	}
}

// Clamp bounds the think time to [0, MaxTime] and replaces a non-positive
// ply limit with MaxPly.
func (settings SearchSettings) Clamp() SearchSettings {
	switch {
	case settings.MaxTime > MaxTime:
		settings.MaxTime = MaxTime
	case settings.MaxTime < 0:
		settings.MaxTime = 0
	}

	if settings.MaxPly <= 0 {
		settings.MaxPly = MaxPly
	}

	return settings
}
