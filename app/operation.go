/*
Copyright 2023 Huawei Cloud Computing Technologies Co., Ltd.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package app

import (
	"io"
	"os"

	"github.com/openGemini/ts-planner/engine/plan"
	"github.com/openGemini/ts-planner/lib/errno"
	"github.com/pkg/errors"
)

// LoadFragment reads a json encoded fragment instance, "-" reads stdin.
func LoadFragment(path string) (*plan.Fragment, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read fragment %s", path)
	}
	return DecodeFragment(data)
}

func DecodeFragment(data []byte) (*plan.Fragment, error) {
	frag := &plan.Fragment{}
	if err := frag.UnmarshalJSON(data); err != nil {
		if errno.Equal(err, errno.PlanDecodeFail) {
			return nil, err
		}
		return nil, errno.Wrap(err, errno.PlanDecodeFail)
	}
	if frag.Root == nil {
		return nil, errno.Wrap(errors.New("fragment without root"), errno.PlanDecodeFail)
	}
	return frag, nil
}
