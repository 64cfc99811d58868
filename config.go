package landcover

import (
	"fmt"
	"strconv"

	gdal "github.com/airbusgeo/godal"
)

const (
	LANDCOVER_ID    = "nrcan-landcover"
	LANDCOVER_EPSG  = 3978
	LANDCOVER_TITLE = "Land Cover of Canada - Cartographic Product Collection"
	LANDCOVER_RES   = 30.0

	UNIVERSAL_SRID = 4326

	DESCRIPTION = "Collection of Land Cover products for Canada as produced by Natural Resources Canada using Landsat satellite imagery. This collection of cartographic products offers classified Land Cover of Canada at a 30 metre scale, updated on a 5 year basis."

	LICENSE       = "OGL-Canada-2.0"
	LICENSE_HREF  = "https://open.canada.ca/en/open-government-licence-canada"
	LICENSE_TITLE = "Open Government Licence - Canada"

	PROVIDER_NAME = "Natural Resources Canada | Ressources naturelles Canada"
	PROVIDER_URL  = "https://www.nrcan.gc.ca/maps-tools-publications/satellite-imagery-air-photos/application-development/land-cover/21755"

	JSONLD_HREF = "https://open.canada.ca/data/en/dataset/4e615eae-b90c-420b-adee-2ca35896caf6.jsonld"
	NRCAN_FTP   = "http://ftp.maps.canada.ca/pub/nrcan_rncan/Land-cover_Couverture-du-sol/canada-landcover_canada-couverture-du-sol/CanadaLandcover2015.zip"

	DATASET_SPAN_YEARS = 5

	NO_DATA_VALUE = 0

	FILE_EXT_TIF    = ".tif"
	FILE_EXT_JSON   = ".json"
	FILE_EXT_JSONLD = ".jsonld"
	FILE_EXT_ZIP    = ".zip"
	COG_SUFFIX      = "_cog"
	TMP_TIF         = ".%s.tmp.tif"
	TMP_JSON        = ".%s.tmp.json"

	COLLECTION_FILE = "collection.json"

	COG_BLOCK_SIZE    = 512
	COG_DEFLATE_LEVEL = 9

	MEDIA_TYPE_COG     = "image/tiff; application=geotiff; profile=cloud-optimized"
	MEDIA_TYPE_JSON    = "application/json"
	MEDIA_TYPE_GEOJSON = "application/geo+json"
	MEDIA_TYPE_JSONLD  = "application/ld+json"

	STAC_VERSION = "1.0.0"
)

// STAC扩展schema
var (
	ExtProjection = "https://stac-extensions.github.io/projection/v1.0.0/schema.json"
	ExtLabel      = "https://stac-extensions.github.io/label/v1.0.1/schema.json"
	ExtFile       = "https://stac-extensions.github.io/file/v2.1.0/schema.json"
	ExtRaster     = "https://stac-extensions.github.io/raster/v1.1.0/schema.json"

	ItemExtensions = []string{ExtProjection, ExtLabel, ExtFile, ExtRaster}
)

// 地类图例（编码->名称），顺序固定，共15类
var ClassLegend = [...]ClassValue{
	{1, "Temperate or sub-polar needleleaf forest"},
	{2, "Sub-polar taiga needleleaf forest"},
	{5, "Temperate or sub-polar broadleaf deciduous forest"},
	{6, "Mixed forest"},
	{8, "Temperate or sub-polar shrubland"},
	{10, "Temperate or sub-polar grassland"},
	{11, "Sub-polar or polar shrubland-lichen-moss"},
	{12, "Sub-polar or polar grassland-lichen-moss"},
	{13, "Sub-polar or polar barren-lichen-moss"},
	{14, "Wetland"},
	{15, "Cropland"},
	{16, "Barren lands"},
	{17, "Urban"},
	{18, "Water"},
	{19, "Snow and Ice"},
}

// 地类配色（编码->RGBA），0为透明的无数据色
var ColourMap = map[uint8][4]int16{
	0:  {0, 0, 0, 0},
	1:  {0, 61, 0, 255},
	2:  {147, 155, 112, 255},
	5:  {20, 140, 61, 255},
	6:  {91, 117, 43, 255},
	8:  {178, 137, 51, 255},
	10: {224, 206, 137, 255},
	11: {155, 117, 137, 255},
	12: {186, 211, 84, 255},
	13: {63, 137, 114, 255},
	14: {107, 163, 137, 255},
	15: {229, 173, 102, 255},
	16: {168, 170, 173, 255},
	17: {219, 33, 38, 155},
	18: {76, 112, 163, 255},
	19: {255, 249, 255, 255},
}

// 各波段固定描述
var LandcoverBand = BandDescriptor{
	NoData:            NO_DATA_VALUE,
	Sampling:          "area",
	DataType:          "uint8",
	SpatialResolution: LANDCOVER_RES,
}

// 生成COG所需的gdal_translate参数
func cogSwitches(blockSize, level int) []string {
	return []string{
		"-of", "COG",
		"-co", "NUM_THREADS=ALL_CPUS",
		"-co", "BLOCKSIZE=" + strconv.Itoa(blockSize),
		"-co", "COMPRESS=DEFLATE",
		"-co", "LEVEL=" + strconv.Itoa(level),
		"-co", "PREDICTOR=YES",
		"-co", "OVERVIEWS=IGNORE_EXISTING",
		"-a_nodata", strconv.Itoa(NO_DATA_VALUE),
	}
}

// 裁剪窗口（像素坐标）的gdal_translate参数
func srcWinSwitches(xOff, yOff, xSize, ySize int) []string {
	return []string{
		"-of", "MEM",
		"-srcwin", strconv.Itoa(xOff), strconv.Itoa(yOff), strconv.Itoa(xSize), strconv.Itoa(ySize),
	}
}

// 按配色表生成调色板，调色板长度覆盖最大编码
func colorTable() gdal.ColorTable {
	var maxCode uint8
	for code := range ColourMap {
		if code > maxCode {
			maxCode = code
		}
	}
	entries := make([][4]int16, int(maxCode)+1)
	for code, rgba := range ColourMap {
		entries[code] = rgba
	}
	return gdal.ColorTable{
		PaletteInterp: gdal.RGBPalette,
		Entries:       entries,
	}
}

func epsgCode(srid int) string {
	return fmt.Sprintf("EPSG:%d", srid)
}
