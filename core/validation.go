// Copyright 2025 Parcival Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"fmt"
	"regexp"
	"strings"
)

// tableNamePattern is the only shape a table identifier may take. Table names
// end up interpolated into DDL, so this check is a security boundary, not a
// cosmetic one.
var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// reservedTableNames blocks SQL keywords and schema/system names from being
// used as embedding table identifiers.
var reservedTableNames = map[string]struct{}{
	"select":             {},
	"insert":             {},
	"update":             {},
	"delete":             {},
	"drop":               {},
	"create":             {},
	"alter":              {},
	"table":              {},
	"index":              {},
	"view":               {},
	"schema":             {},
	"database":           {},
	"user":               {},
	"admin":              {},
	"root":               {},
	"system":             {},
	"information_schema": {},
}

// ValidateTableName checks that name is a safe SQL identifier for an
// embedding table. Names must match ^[a-zA-Z_][a-zA-Z0-9_]*$, must not be a
// reserved word, and must not claim the pg_ system prefix.
func ValidateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidTableName)
	}

	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q does not match identifier pattern", ErrInvalidTableName, name)
	}

	lower := strings.ToLower(name)
	if _, ok := reservedTableNames[lower]; ok {
		return fmt.Errorf("%w: %q is a reserved word", ErrInvalidTableName, name)
	}

	if strings.HasPrefix(lower, "pg_") {
		return fmt.Errorf("%w: %q uses the pg_ system prefix", ErrInvalidTableName, name)
	}

	return nil
}
