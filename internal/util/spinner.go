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

package util

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/sirupsen/logrus"
)

const SPIN = 31

var working = spinner.New(spinner.CharSets[SPIN], 100*time.Millisecond, spinner.WithWriterFile(os.Stderr))

// StartSpinner shows the ~working~ spinner with the given suffix. Nothing is
// shown while engine i/o is being logged.
func StartSpinner(suffix string) {
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	working.Suffix = " " + suffix
	working.Start()
}

// PauseSpinner hides the spinner if it is running.
func PauseSpinner() {
	working.Stop()
}
