// Copyright 2025 Poiesic Systems
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


package nitf

// XML shapes of the parts of a NITF article that are mapped onto documents.

type article struct {
	Head head `xml:"head"`
	Body body `xml:"body"`
}

type head struct {
	Metas   []meta  `xml:"meta"`
	DocData docData `xml:"docdata"`
	PubData pubData `xml:"pubdata"`
}

type meta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type docData struct {
	DocID struct {
		IDString string `xml:"id-string,attr"`
	} `xml:"doc-id"`
	Content identifiedContent `xml:"identified-content"`
}

type identifiedContent struct {
	Classifiers   []classifier `xml:"classifier"`
	Locations     []tagged     `xml:"location"`
	People        []tagged     `xml:"person"`
	Organizations []tagged     `xml:"org"`
	Titles        []tagged     `xml:"object.title"`
}

type classifier struct {
	Class string `xml:"class,attr"`
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type tagged struct {
	Class string `xml:"class,attr"`
	Value string `xml:",chardata"`
}

type pubData struct {
	Date       string `xml:"date.publication,attr"`
	ExRef      string `xml:"ex-ref,attr"`
	ItemLength string `xml:"item-length,attr"`
}

type body struct {
	Head    bodyHead    `xml:"body.head"`
	Content bodyContent `xml:"body.content"`
}

type bodyHead struct {
	Hedline struct {
		HL1 []string `xml:"hl1"`
		HL2 []tagged `xml:"hl2"`
	} `xml:"hedline"`
	Bylines  []tagged   `xml:"byline"`
	Dateline string     `xml:"dateline"`
	Abstract paragraphs `xml:"abstract"`
}

type bodyContent struct {
	Blocks []block `xml:"block"`
}

type block struct {
	Class      string   `xml:"class,attr"`
	Paragraphs []string `xml:"p"`
}

type paragraphs struct {
	Paragraphs []string `xml:"p"`
}
