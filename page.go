//----------------------------------------------------------------------
// This file is part of srvweb.
// Copyright (C) 2025-present Bernd Fix   >Y<
//
// srvweb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// srvweb is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

package srvweb

import "fmt"

// page frame for all served documents
const pageFrame = `
<!DOCTYPE html>
<html>
    <head>
        <meta charset="utf-8">
        <title>srvweb</title>
    </head>
    <body>
        %s
    </body>
</html>
`

// Templated wraps content in the fixed page frame.
func Templated(content string) string {
	return fmt.Sprintf(pageFrame, content)
}

// IndexHTML is the one document this device serves.
func IndexHTML() string {
	return Templated("✨ Quint was here!")
}

// IndexHandler answers the page route.
func IndexHandler(req *Request) (*Response, error) {
	return &Response{
		Status:      200,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(IndexHTML()),
	}, nil
}
