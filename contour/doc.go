/*
Package contour 在二维标量网格上用 marching squares 追踪等值线。

每个 2×2 单元按四角是否高于等值线得到 0..15 的情形码，交点在边上
线性插值；鞍点（情形 6、9）按"低值不连通"处理。线段按端点精确匹配
拼接成折线，闭合轮廓首尾点相同。结果按创建顺序（从上到下、从左到右
扫描）返回。
*/
package contour
