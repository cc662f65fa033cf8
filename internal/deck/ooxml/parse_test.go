package ooxml

import "testing"

const tableSlideXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
 <p:cSld><p:spTree>
  <p:graphicFrame>
   <p:nvGraphicFramePr><p:cNvPr id="7" name="Table 1"/></p:nvGraphicFramePr>
   <a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table">
    <a:tbl>
     <a:tblGrid><a:gridCol w="914400"/><a:gridCol w="914400"/></a:tblGrid>
     <a:tr h="370840">
      <a:tc><a:txBody><a:bodyPr/><a:p><a:r><a:t>Region</a:t></a:r></a:p></a:txBody></a:tc>
      <a:tc><a:txBody><a:bodyPr/><a:p><a:r><a:t>Revenue</a:t></a:r></a:p></a:txBody></a:tc>
     </a:tr>
     <a:tr h="370840">
      <a:tc><a:txBody><a:bodyPr/><a:p><a:r><a:t>EMEA</a:t></a:r></a:p><a:p><a:r><a:t>adjusted</a:t></a:r></a:p></a:txBody></a:tc>
      <a:tc><a:txBody><a:bodyPr/><a:p><a:r><a:t>42</a:t></a:r></a:p></a:txBody></a:tc>
     </a:tr>
    </a:tbl>
   </a:graphicData></a:graphic>
  </p:graphicFrame>
 </p:spTree></p:cSld>
</p:sld>`

func TestParseTableKeepsCellBoundaries(t *testing.T) {
	shapes, err := parseShapeTree([]byte(tableSlideXML))
	if err != nil {
		t.Fatalf("parseShapeTree failed: %v", err)
	}
	if len(shapes) != 1 {
		t.Fatalf("got %d shapes, want 1", len(shapes))
	}
	shape := shapes[0]
	if !shape.hasTable {
		t.Fatal("graphicFrame with a:tbl must report a table")
	}
	// 2x2 table: one entry per cell, not per row.
	if len(shape.table) != 4 {
		t.Fatalf("got %d cells, want 4", len(shape.table))
	}
	for i, want := range []string{"Region", "Revenue", "EMEA", "42"} {
		if len(shape.table[i]) == 0 || shape.table[i][0].Text != want {
			t.Errorf("cell %d = %+v, want first paragraph %q", i, shape.table[i], want)
		}
	}
	// A multi-paragraph cell keeps its paragraphs together.
	if len(shape.table[2]) != 2 || shape.table[2][1].Text != "adjusted" {
		t.Errorf("cell 2 = %+v, want two paragraphs ending in %q", shape.table[2], "adjusted")
	}
	if len(shape.table[3]) != 1 {
		t.Errorf("cell 3 = %+v, want a single paragraph", shape.table[3])
	}
}
