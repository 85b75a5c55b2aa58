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


package main

import (
	"archive/tar"
	"encoding/xml"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/poiesic/corpora/archive"
	"github.com/ulikunitz/xz"
)

var sentences = []string{
	"The City Council approved a revised budget after a long night of debate.",
	"Stock prices climbed for a third straight session as bond yields eased.",
	"The mayor announced a plan to repave the avenues before winter.",
	"A late snowstorm closed schools across the northern suburbs.",
	"Officials said the new subway line would open two years behind schedule.",
	"The museum unveiled a restored collection of colonial maps.",
	"Union leaders and the transit authority resumed contract talks.",
	"Farmers reported the largest wheat harvest in a decade.",
	"The governor signed a bill expanding access to public libraries.",
	"Researchers described a treatment that slowed the disease in mice.",
	"The harbor pilots warned that fog would delay arriving ships.",
	"A fire in a textile warehouse sent smoke across the river.",
	"The orchestra opened its season with a program of new works.",
	"Investors watched the central bank for a signal on interest rates.",
	"The school board voted to extend the academic year by a week.",
	"Tenants organized to protest a proposed rent increase.",
	"The team traded its veteran pitcher for two young prospects.",
	"A federal judge blocked the merger of the two regional airlines.",
	"Engineers inspected the bridge after cracks were found in a pier.",
	"The senator said she would not seek a fourth term.",
	"Retail sales rose modestly in the holiday quarter.",
	"The parks department planted a thousand trees along the parkway.",
	"Police said the suspect was arrested without incident.",
	"The publisher announced it would close two regional papers.",
	"Voters narrowly approved a bond issue for new water mains.",
	"The embassy reopened after a week of demonstrations.",
	"Scientists at the observatory tracked a comet near the sun.",
	"The hospital opened a clinic for patients without insurance.",
	"Ferry service was suspended while the terminal was repaired.",
	"The festival drew record crowds despite the heat.",
}

var (
	generalDescriptors = []string{
		"Budgets and Budgeting", "Stocks and Bonds", "Interest Rates", "Education and Schools",
		"Transit Systems", "Weather", "Music", "Labor", "Agriculture", "Elections",
		"Medicine and Health", "Fires and Firemen", "Baseball", "Airlines and Airplanes",
		"Bridges and Tunnels", "Housing", "Newspapers", "Water", "Demonstrations and Riots",
		"Astronomy",
	}
	typesOfMaterial = []string{"News", "Review", "Editorial", "Obituary", "Letter", "Biography"}
	desks           = []string{"Metropolitan Desk", "Financial Desk", "Foreign Desk", "National Desk", "Sports Desk", "Culture Desk"}
	locations       = []string{"NEW YORK CITY", "ALBANY (NY)", "NEW JERSEY", "WASHINGTON (DC)", "CONNECTICUT"}
	weekdays        = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
)

// Compression names accepted by the generator.
var compressionSuffixes = map[string]string{
	"none": ".tar",
	"gzip": ".tar.gz",
	"zstd": ".tar.zst",
	"xz":   ".tar.xz",
}

// Generator writes synthetic NITF archives.
type Generator struct {
	Archives    int
	Docs        int
	Compression string
	Duplicates  int // docids per archive repeated from the previous archive
	Malformed   int // unparseable entries per archive
	Start       time.Time
	rng         *rand.Rand
}

// GeneratedCorpus describes what Generate wrote.
type GeneratedCorpus struct {
	ListPath  string
	Archives  []string
	Documents int // distinct docids
}

func newGenerator(seed uint64) *Generator {
	return &Generator{
		Archives:    4,
		Docs:        1000,
		Compression: "gzip",
		Start:       time.Date(1987, time.January, 1, 0, 0, 0, 0, time.UTC),
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Generate writes the archives and a list naming them into dir.
func (g *Generator) Generate(dir string) (*GeneratedCorpus, error) {
	suffix, ok := compressionSuffixes[g.Compression]
	if !ok {
		return nil, fmt.Errorf("unsupported compression %q", g.Compression)
	}
	if g.Archives < 1 || g.Docs < 1 {
		return nil, fmt.Errorf("need at least one archive and one document, got %d and %d", g.Archives, g.Docs)
	}
	if g.Duplicates > g.Docs {
		return nil, fmt.Errorf("duplicates (%d) cannot exceed documents per archive (%d)", g.Duplicates, g.Docs)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	corpus := &GeneratedCorpus{ListPath: filepath.Join(dir, "files.txt")}
	next := 1
	for a := range g.Archives {
		path := filepath.Join(dir, fmt.Sprintf("archive-%03d%s", a, suffix))
		first := next
		if err := g.writeArchive(path, a, first); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		next += g.Docs
		if a > 0 {
			next -= g.Duplicates
		}
		corpus.Archives = append(corpus.Archives, path)
	}
	corpus.Documents = next - 1

	list := strings.Join(corpus.Archives, "\n") + "\n"
	if err := os.WriteFile(corpus.ListPath, []byte(list), 0644); err != nil {
		return nil, err
	}
	return corpus, nil
}

// writeArchive writes one archive. Archives after the first start their
// docids Duplicates below first so that they overlap the previous archive.
func (g *Generator) writeArchive(path string, index, first int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w, closeCompressor, err := g.compressor(f)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(w)

	if index > 0 {
		first -= g.Duplicates
	}
	for i := range g.Docs {
		id := first + i
		day := g.Start.AddDate(0, 0, id/50)
		name := fmt.Sprintf("%d/%02d/%02d/%07d%s", day.Year(), day.Month(), day.Day(), id, archive.DefaultSuffix)
		text, err := g.article(id, day)
		if err != nil {
			return err
		}
		if err := writeEntry(tw, name, text); err != nil {
			return err
		}
	}
	for i := range g.Malformed {
		name := fmt.Sprintf("malformed/%03d-%03d%s", index, i, archive.DefaultSuffix)
		if err := writeEntry(tw, name, []byte("<nitf><head>")); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return closeCompressor()
}

func (g *Generator) compressor(w io.Writer) (io.Writer, func() error, error) {
	switch g.Compression {
	case "gzip":
		gz := gzip.NewWriter(w)
		return gz, gz.Close, nil
	case "zstd":
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, err
		}
		return enc, enc.Close, nil
	case "xz":
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, nil, err
		}
		return xw, xw.Close, nil
	default:
		return w, func() error { return nil }, nil
	}
}

func writeEntry(tw *tar.Writer, name string, text []byte) error {
	if err := tw.WriteHeader(&tar.Header{
		Name:     name,
		Mode:     0644,
		Size:     int64(len(text)),
		ModTime:  time.Unix(0, 0),
		Typeflag: tar.TypeReg,
	}); err != nil {
		return err
	}
	_, err := tw.Write(text)
	return err
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.IntN(len(values))]
}

func (g *Generator) paragraphs(n int) []string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = g.pick(sentences) + " " + g.pick(sentences)
	}
	return ps
}

func (g *Generator) article(id int, day time.Time) ([]byte, error) {
	headline := strings.TrimSuffix(g.pick(sentences), ".")
	body := g.paragraphs(2 + g.rng.IntN(4))
	descriptors := []string{g.pick(generalDescriptors), g.pick(generalDescriptors)}

	doc := nitfArticle{
		Head: nitfHead{
			Title: headline,
			Metas: []nitfMeta{
				{Name: "publication_day_of_month", Content: fmt.Sprint(day.Day())},
				{Name: "publication_month", Content: fmt.Sprint(int(day.Month()))},
				{Name: "publication_year", Content: fmt.Sprint(day.Year())},
				{Name: "publication_day_of_week", Content: weekdays[day.Weekday()]},
				{Name: "dsk", Content: g.pick(desks)},
				{Name: "print_page_number", Content: fmt.Sprint(1 + g.rng.IntN(60))},
			},
		},
	}
	doc.Head.DocData.DocID.IDString = fmt.Sprintf("%07d", id)
	content := &doc.Head.DocData.Content
	content.Classifiers = append(content.Classifiers,
		nitfClassifier{Class: "online_producer", Type: "types_of_material", Value: g.pick(typesOfMaterial)})
	for _, d := range descriptors {
		content.Classifiers = append(content.Classifiers,
			nitfClassifier{Class: "online_producer", Type: "general_descriptor", Value: d},
			nitfClassifier{Class: "indexing_service", Type: "descriptor", Value: strings.ToUpper(d)})
	}
	content.Locations = []nitfTagged{{Class: "indexing_service", Value: g.pick(locations)}}
	doc.Head.PubData = nitfPubData{
		Date:       day.Format("20060102T150405"),
		ItemLength: fmt.Sprint(len(strings.Fields(strings.Join(body, " ")))),
	}

	doc.Body.Head.Hedline.HL1 = headline
	doc.Body.Head.Abstract = &nitfParagraphs{P: body[:1]}
	doc.Body.Content.Blocks = []nitfBlock{
		{Class: "lead_paragraph", P: body[:1]},
		{Class: "full_text", P: body},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// The shapes below cover the NITF elements the loader reads.

type nitfArticle struct {
	XMLName xml.Name `xml:"nitf"`
	Head    nitfHead `xml:"head"`
	Body    nitfBody `xml:"body"`
}

type nitfHead struct {
	Title   string     `xml:"title"`
	Metas   []nitfMeta `xml:"meta"`
	DocData struct {
		DocID struct {
			IDString string `xml:"id-string,attr"`
		} `xml:"doc-id"`
		Content nitfContent `xml:"identified-content"`
	} `xml:"docdata"`
	PubData nitfPubData `xml:"pubdata"`
}

type nitfMeta struct {
	Content string `xml:"content,attr"`
	Name    string `xml:"name,attr"`
}

type nitfContent struct {
	Classifiers []nitfClassifier `xml:"classifier"`
	Locations   []nitfTagged     `xml:"location"`
}

type nitfClassifier struct {
	Class string `xml:"class,attr"`
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type nitfTagged struct {
	Class string `xml:"class,attr"`
	Value string `xml:",chardata"`
}

type nitfPubData struct {
	Date       string `xml:"date.publication,attr"`
	ItemLength string `xml:"item-length,attr"`
}

type nitfBody struct {
	Head struct {
		Hedline struct {
			HL1 string `xml:"hl1"`
		} `xml:"hedline"`
		Abstract *nitfParagraphs `xml:"abstract,omitempty"`
	} `xml:"body.head"`
	Content struct {
		Blocks []nitfBlock `xml:"block"`
	} `xml:"body.content"`
}

type nitfParagraphs struct {
	P []string `xml:"p"`
}

type nitfBlock struct {
	Class string   `xml:"class,attr"`
	P     []string `xml:"p"`
}
